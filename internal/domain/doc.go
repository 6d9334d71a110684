// Package domain contains the task lifecycle entities and their rules:
// the status state machine, the edit restrictions that follow from it, and
// the notification and collaborator types the engine reads. Nothing here
// touches storage or the clock directly; the current instant and the
// deadline policy are passed in.
package domain
