// Package deploy uploads diagrams to a process engine deployment endpoint as
// multipart forms.
package deploy
