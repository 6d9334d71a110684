// Package service contains the task lifecycle use cases.
//
// Services coordinate the access guard, the task state machine, the stores
// and the notification emitter. Every operation takes the acting principal
// as an explicit argument. Operations that write more than one row run in a
// single transaction through store.RunInTransaction, and notifications raised
// by an interactive change commit or roll back with it.
package service
