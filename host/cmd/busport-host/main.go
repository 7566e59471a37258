package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/bits"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/constraints"

	"busport/host/mcu"
	"busport/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 250000, "Baud rate (ignored for USB CDC)")
	timeout = flag.Duration("timeout", time.Second, "Time to wait for each MCU reply")
	verbose = flag.Bool("verbose", false, "Enable verbose output")

	// One-shot mode: configure a port, write a value and exit
	port  = flag.String("port", "", "Port letter for one-shot mode (e.g. C)")
	pins  = flag.String("pins", "", "Comma separated pin numbers, bit 0 first (e.g. 8,9,10)")
	value = flag.Int("value", -1, "Value to write in one-shot mode")
	oid   = flag.Int("oid", 0, "Object id for one-shot mode")
)

func main() {
	flag.Parse()

	fmt.Println("Busport Host - Parallel Output Port Control")
	fmt.Println("============================================")

	mcuConn := mcu.NewMCU()
	mcuConn.Timeout = *timeout
	mcuConn.Verbose = *verbose

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to MCU on %s...\n", *device)
	if err := mcuConn.ConnectWithConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer mcuConn.Close()

	if err := mcuConn.Identify(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Dictionary:\n%s\n", mcuConn.GetDictionary())

	if *port != "" {
		if err := oneShot(mcuConn); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		var err error
		switch parts[0] {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "dict":
			fmt.Print(mcuConn.GetDictionary())

		case "config":
			err = runConfig(mcuConn, parts[1:])

		case "write":
			err = runWrite(mcuConn, parts[1:])

		case "query":
			err = runQuery(mcuConn, parts[1:])

		case "clock":
			err = runClock(mcuConn)

		case "queue":
			err = runQueue(mcuConn, parts[1:])

		case "dump":
			err = mcuConn.SendCommand("dump_writes", nil)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", parts[0])
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help                      - Show this help message")
	fmt.Println("  dict                      - Print dictionary")
	fmt.Println("  config <oid> <port> <pins> - Bind pins (e.g. config 0 C 8,9,10)")
	fmt.Println("  write <oid> <value>       - Write a value to an out port")
	fmt.Println("  query <oid>               - Show last value and register word")
	fmt.Println("  clock                     - Read the MCU clock")
	fmt.Println("  queue <oid> <ms> <value>  - Write a value <ms> milliseconds from now")
	fmt.Println("  dump                      - Print the write ring on the MCU debug output")
	fmt.Println("  quit/exit/q               - Exit the program")
	fmt.Println()
}

func oneShot(m *mcu.MCU) error {
	if err := runConfig(m, []string{strconv.Itoa(*oid), *port, *pins}); err != nil {
		return err
	}
	if *value < 0 {
		return nil
	}
	if err := runWrite(m, []string{strconv.Itoa(*oid), strconv.Itoa(*value)}); err != nil {
		return err
	}
	return runQuery(m, []string{strconv.Itoa(*oid)})
}

func runConfig(m *mcu.MCU, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: config <oid> <port> <pins>")
	}
	id, err := parseByte(args[0])
	if err != nil {
		return fmt.Errorf("invalid oid: %w", err)
	}
	if len(args[1]) != 1 {
		return fmt.Errorf("invalid port %q", args[1])
	}
	letter := strings.ToUpper(args[1])[0]

	var nums []uint8
	for _, field := range strings.Split(args[2], ",") {
		n, err := parseByte(strings.TrimSpace(field))
		if err != nil {
			return fmt.Errorf("invalid pin %q: %w", field, err)
		}
		nums = append(nums, n)
	}

	if err := m.ConfigOutPort(id, letter, nums); err != nil {
		return fmt.Errorf("failed to send config_out_port: %w", err)
	}
	fmt.Printf("Out port %d bound to P%c %v\n", id, letter, nums)
	return nil
}

func runWrite(m *mcu.MCU, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: write <oid> <value>")
	}
	id, err := parseByte(args[0])
	if err != nil {
		return fmt.Errorf("invalid oid: %w", err)
	}
	v, err := parseByte(args[1])
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	return m.WriteOutPort(id, v)
}

func runQuery(m *mcu.MCU, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: query <oid>")
	}
	id, err := parseByte(args[0])
	if err != nil {
		return fmt.Errorf("invalid oid: %w", err)
	}
	state, err := m.QueryOutPort(id)
	if err != nil {
		return err
	}
	if !state.Written {
		fmt.Printf("Out port %d: not written yet\n", state.OID)
		return nil
	}
	fmt.Printf("Out port %d: value=0x%02X word=0x%08X\n", state.OID, state.Value, state.Word)
	return nil
}

func runClock(m *mcu.MCU) error {
	clock, err := m.GetClock()
	if err != nil {
		return err
	}
	fmt.Printf("MCU clock: %d\n", clock)
	return nil
}

func runQueue(m *mcu.MCU, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: queue <oid> <ms> <value>")
	}
	id, err := parseByte(args[0])
	if err != nil {
		return fmt.Errorf("invalid oid: %w", err)
	}
	ms, err := parseUint[uint32](args[1])
	if err != nil {
		return fmt.Errorf("invalid delay: %w", err)
	}
	v, err := parseByte(args[2])
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}

	freq, ok := m.GetDictionary().Constant("CLOCK_FREQ")
	if !ok {
		return fmt.Errorf("MCU does not report CLOCK_FREQ")
	}
	hz, err := parseUint[uint32](freq)
	if err != nil {
		return fmt.Errorf("invalid CLOCK_FREQ %q: %w", freq, err)
	}

	clock, err := m.GetClock()
	if err != nil {
		return err
	}
	at := clock + uint32(uint64(ms)*uint64(hz)/1000)
	if err := m.QueueOutPort(id, at, v); err != nil {
		return err
	}
	fmt.Printf("Out port %d: 0x%02X queued for clock %d\n", id, v, at)
	return nil
}

// parseUint accepts decimal, 0x hex and 0b binary, range-checked for T
func parseUint[T constraints.Unsigned](s string) (T, error) {
	v, err := strconv.ParseUint(s, 0, bits.Len64(uint64(^T(0))))
	return T(v), err
}

func parseByte(s string) (uint8, error) {
	return parseUint[uint8](s)
}
