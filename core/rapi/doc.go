// Package rapi speaks the OpenEVSE remote API: ASCII commands framed as
// "<command>^<checksum>" where the checksum is the XOR of the command bytes
// in uppercase hexadecimal. Responses use the same framing and are rejected
// when their checksum does not match.
package rapi
