// Package vm implements the Intcode virtual machine.
//
// This package contains:
//   - the growable signed-integer memory tape
//   - lazy instruction decoding with position/immediate/relative addressing
//   - the fetch-decode-execute step engine and its run drivers
//   - CBOR snapshots of suspended processes
package vm
