// Package vm implements the Arly virtual machine: a byte-addressed
// stack machine that executes images produced by the Clover compiler.
//
// The VM is deliberately small. Every value is a 32-bit slot; there is
// no heap, no garbage collector and no object model. A command pairs an
// init routine and a loop routine; the host calls Init once and Loop
// repeatedly, scheduling on the returned delay.
package vm
