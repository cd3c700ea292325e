// Package worklist supplies the task ids a scheduler run starts with.
package worklist
