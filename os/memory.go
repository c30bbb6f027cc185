package os

// Main memory size of the retail console. Development hardware carries
// twice that, but reports this value as the simulated size.
const MainMemorySize = 24 << 20

// The OS globals below this offset are off-limits to applications; the boot
// arena begins right behind them.
const arenaLoDefault = 0x3100

// Memory models main memory together with the boot block the IPL fills in
// before handing over control: the console's memory sizes and the arena
// bounds handed to the allocator.
type Memory struct {
	ram       []byte
	simulated uint32

	arenaLo, arenaHi int
}

// NewMemory returns a main memory of the given physical size with the
// default arena spanning everything above the OS globals.
func NewMemory(size int) *Memory {
	return &Memory{
		ram:       make([]byte, size),
		simulated: uint32(min(size, MainMemorySize)),
		arenaLo:   arenaLoDefault,
		arenaHi:   size,
	}
}

// PhysicalMemSize returns the size of the installed memory.
func (m *Memory) PhysicalMemSize() uint32 { return uint32(len(m.ram)) }

// ConsoleSimulatedMemSize returns the memory size presented to
// applications, which is capped at the retail console's on development
// hardware.
func (m *Memory) ConsoleSimulatedMemSize() uint32 { return m.simulated }

func (m *Memory) ArenaLo() int { return m.arenaLo }
func (m *Memory) ArenaHi() int { return m.arenaHi }

// SetArenaLo raises the arena's lower bound, usually to reserve boot-time
// allocations that are never freed.
func (m *Memory) SetArenaLo(lo int) { m.arenaLo = min(max(lo, 0), m.arenaHi) }

// SetArenaHi lowers the arena's upper bound.
func (m *Memory) SetArenaHi(hi int) { m.arenaHi = min(max(hi, m.arenaLo), len(m.ram)) }

// Arena returns the memory between the arena bounds, for handing to
// InitAlloc.
func (m *Memory) Arena() []byte { return m.ram[m.arenaLo:m.arenaHi] }
