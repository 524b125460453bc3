// Package studio is the controlling-side SDK: join a session, push
// style commands at its targets, and observe what they report back.
package studio
