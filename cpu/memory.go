package cpu

import (
	"bufio"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"
)

const (
	MEMORY_SIZE  = 4096   // Words of memory.
	ADDRESS_MASK = 0x0fff // 12-bit address.
	WORD_MASK    = 0xffff // 16-bit word.
)

// Memory is the 4096 x 16 main memory, with access counters.
type Memory struct {
	Cell   [MEMORY_SIZE]uint16
	Reads  int // Simulated memory reads.
	Writes int // Simulated memory writes.
}

// Read returns the word at addr, masked to 12 bits.
func (mem *Memory) Read(addr uint16) uint16 {
	mem.Reads++
	return mem.Cell[addr&ADDRESS_MASK]
}

// Write stores value at addr, masked to 12 bits.
func (mem *Memory) Write(addr uint16, value uint16) {
	mem.Writes++
	mem.Cell[addr&ADDRESS_MASK] = value
}

// Peek returns the word at addr without counting an access.
func (mem *Memory) Peek(addr uint16) uint16 {
	return mem.Cell[addr&ADDRESS_MASK]
}

// Dump returns an iterator over count words starting at addr,
// wrapping at the end of memory.
func (mem *Memory) Dump(addr uint16, count int) iter.Seq2[uint16, uint16] {
	return func(yield func(addr uint16, value uint16) bool) {
		for n := range count {
			here := (addr + uint16(n)) & ADDRESS_MASK
			if !yield(here, mem.Cell[here]) {
				return
			}
		}
	}
}

// parseHex parses an optionally 0x-prefixed hexadecimal token.
func parseHex(word string) (value uint64, err error) {
	digits := word
	if len(digits) > 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	value, err = strconv.ParseUint(digits, 16, 32)
	if err != nil {
		err = ErrParseNumber(word)
	}
	return
}

// LoadImage loads 'ADDR VALUE' hex records into memory.
//
// Blank lines and lines starting with '#' or ';' are skipped. The two
// tokens may be separated by whitespace, ':' or ','; anything after the
// second token is ignored. Records that do not parse, or whose address
// is not below MEMORY_SIZE, are skipped. Memory not named by a record
// is left untouched.
//
// The lowest address loaded is returned, with ok set if any record was
// loaded.
func (mem *Memory) LoadImage(input io.Reader) (lowest uint16, ok bool, err error) {
	scanner := bufio.NewScanner(input)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' || line[0] == ';' {
			continue
		}

		line = strings.NewReplacer(":", " ", ",", " ").Replace(line)
		words := strings.Fields(line)
		if len(words) < 2 {
			continue
		}

		addr, addr_err := parseHex(words[0])
		value, value_err := parseHex(words[1])
		if addr_err != nil || value_err != nil {
			continue
		}
		if addr >= MEMORY_SIZE {
			continue
		}

		mem.Cell[addr] = uint16(value & WORD_MASK)
		if !ok || uint16(addr) < lowest {
			lowest = uint16(addr)
			ok = true
		}
	}

	err = scanner.Err()

	return
}

// LoadFile loads a memory image from a file.
// A missing or unreadable file leaves memory unmodified.
func (mem *Memory) LoadFile(path string) (lowest uint16, ok bool, err error) {
	inf, err := os.Open(path)
	if err != nil {
		err = &ErrImage{Path: path, Err: err}
		return
	}
	defer inf.Close()

	lowest, ok, err = mem.LoadImage(inf)
	if err != nil {
		err = &ErrImage{Path: path, Err: err}
	}

	return
}
