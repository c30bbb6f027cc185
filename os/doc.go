// Package os reconstructs the operating system services of the Dolphin SDK:
// interrupt-driven reset switch handling, the system timebase and arena
// backed heap allocation.
//
// All services are owned by explicit instances instead of process-wide
// state, constructed once during system bringup. State shared with
// interrupt handlers is only touched inside the interrupt controller's
// critical section.
package os
