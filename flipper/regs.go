package flipper

// The processor interface has multiple interrupt sources, which are all
// routed to the same external interrupt line on the CPU. Each source has a
// bit in the cause register and a matching bit in the mask register.
type InterruptFlag uint32

const (
	IntrError       InterruptFlag = 1 << iota // bus, memory or DI access error
	IntrResetSwitch                           // user has pushed the reset button
	IntrDisk                                  // disk drive command finished
	IntrSerial                                // serial transfer to controllers finished
	IntrExpansion                             // EXI device transfer or insertion
	IntrAudio                                 // audio DMA passed the trigger address
	IntrDSP                                   // DSP mailbox or accelerator event
	IntrMemory                                // memory controller protection violation
	IntrVideo                                 // display interrupt, line configurable
	IntrPEToken                               // pixel engine token reached
	IntrPEFinish                              // pixel engine frame finished
	IntrCommandFIFO                           // command FIFO watermark
	IntrDebugger                              // debugger ring buffer event
	IntrHighSpeed                             // high speed port event

	IntrLast
)

// Besides the latched causes, the cause register exposes the live state of
// the reset switch contact on a high bit, inverted: it reads open while the
// button is up and is not affected by acknowledges.
const intrSwitchOpen InterruptFlag = 0x10000
