/*
Package registry holds the catalog of document-type providers.

A provider describes one document type: its file patterns and the menu
entries it contributes to the host. The built-in providers are embedded as
YAML; additional provider files can be loaded from a directory at startup.

	catalog, err := registry.Default()
	docType, ok := catalog.TypeFor("/models/order.bpmn") // "bpmn", true
*/
package registry
