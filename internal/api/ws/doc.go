/*
Package ws connects the shell to its host over a WebSocket.

The Bridge implements the session host contract: inbound frames from the
host are emitted as events, and outbound calls are written as frames. Frames
sent before a host connects are queued and delivered on connect.

Frames are JSON objects with a type and type-specific fields:

	{"type": "menu:action", "action": {"type": "save"}}
	{"type": "client:open-files", "files": [{"name": "a.bpmn", "path": "/a.bpmn"}]}
	{"type": "menu:register", "docType": "bpmn", "menu": {"helpMenu": [...]}}
*/
package ws
