// Package hub forwards the hub notifications a node receives from its peers
// (challenges, messages, message box status and project numbers) to local
// applications through an embedded WAMP router.
//
// Each subject is published on a topic of the configured realm: "hub/message"
// becomes "<realm>.message". The event arguments are the peer key, the subject
// and the raw JSON body.
package hub
