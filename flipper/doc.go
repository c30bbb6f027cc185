// The flipper package provides a hardware abstraction layer for the
// GameCube's system LSI.
//
// It models the processor interface, which collects the interrupt lines of
// all on-chip peripherals into a single cause register and forwards them to
// the CPU's external interrupt. All hardware capabilities are directly
// exposed and in general unsafe. Use the higher level os package to write
// applications instead.
package flipper

// Processor Interface
// https://www.gc-forever.com/yagcd/chap5.html#sec5.4
