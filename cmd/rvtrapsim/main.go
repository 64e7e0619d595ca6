package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"

	"rvtrap/internal/clic"
	"rvtrap/internal/debugctl"
	"rvtrap/internal/hart"
	"rvtrap/internal/priv"
	"rvtrap/internal/rvlog"
	"rvtrap/internal/simhost"
)

func main() {
	verbose := flag.Bool("v", false, "enable verbose logging")
	numHarts := flag.Int("harts", 1, "number of harts in the cluster")
	memSize := flag.Uint64("memory", 1<<24, "memory size in bytes")
	xlen := flag.Int("xlen", 64, "hart XLEN (32 or 64)")
	hasS := flag.Bool("s-mode", true, "hart implements Supervisor mode")
	hasU := flag.Bool("u-mode", true, "hart implements User mode")
	priv112 := flag.Bool("priv-1.12", true, "privilege version >= 1.12 (2021-12-03)")
	clicFlag := flag.Bool("clic", false, "configure a CLIC per hart")
	clicNumInt := flag.Int("clic-numint", 64, "CLIC interrupt count (clicinfo.num_interrupt)")
	clicIntCtlBits := flag.Uint("clic-intctlbits", 4, "CLICINTCTLBITS")
	clicCfgMBits := flag.Uint("clic-nmbits", 2, "CLICCFGMBITS")
	monitor := flag.Bool("monitor", false, "run an interactive net-port monitor instead of free-running")
	flag.Parse()

	log.SetFlags(0)
	logger := rvlog.New(*verbose)
	logger.Printf("rvtrapsim: %d hart(s), %d bytes of memory, xlen=%d", *numHarts, *memSize, *xlen)

	host := simhost.New(*memSize, *numHarts)
	cluster := hart.NewCluster()

	cfg := hart.Config{
		XLen:        *xlen,
		Implemented: priv.Implemented{S: *hasS, U: *hasU},
		PrivVersion: hart.PrivVersion20190405,
		Debug: debugctl.Config{
			Mode:         debugctl.ModeHalt,
			DebugAddress: 0,
			DexcAddress:  0,
		},
	}
	if *priv112 {
		cfg.PrivVersion = hart.PrivVersion20211203
	}
	if *clicFlag {
		cfg.HasCLIC = true
		cfg.ClicInfo = clic.Info{
			NumInterrupt:   *clicNumInt,
			Version:        1,
			ClicIntCtlBits: uint8(*clicIntCtlBits),
		}
		cfg.ClicCfgMBits = uint8(*clicCfgMBits)
	}

	harts := make([]*hart.Hart, *numHarts)
	for i := 0; i < *numHarts; i++ {
		h := hart.New(i, cfg, cluster, host, logger)
		cluster.Register(h)
		harts[i] = h
	}

	if *clicFlag {
		registerCLICMMIO(cluster, host)
	}

	if *monitor {
		if err := runMonitor(harts, logger); err != nil {
			log.Fatalf("monitor: %v", err)
		}
		return
	}

	runFree(harts, host, logger)
}

// registerCLICMMIO installs the cluster's CLIC memory-mapped region at
// a fixed base as a single registered MMIO range.
func registerCLICMMIO(cluster *hart.Cluster, host *simhost.Host) {
	const base = uint64(0x10000000)
	const size = uint64(1 + 3*64) * 4096
	host.RegisterMMIO(base, size,
		func(off uint64) uint8 {
			return cluster.ReadMMIO(off, clic.PageMachine)
		},
		func(off uint64, v uint8) {
			cluster.WriteMMIO(off, v, clic.PageMachine)
		},
	)
}

// runFree runs every hart's fetch pipeline until interrupted, without
// an attached instruction decoder (this module's scope stops at the
// trap core): a background goroutine calls OnFetch and then the host's
// Tick for every hart that is not halted, until a signal on the signal
// channel stops it. It drives no net ports itself.
func runFree(harts []*hart.Hart, host *simhost.Host, logger *rvlog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			for _, h := range harts {
				if host.Halted(h.HartID()) {
					continue
				}
				h.OnFetch()
				host.Tick(h.HartID())
			}
		}
	}()

	<-sigCh
	close(done)
	logger.Printf("rvtrapsim: stopped")
}

// runMonitor implements the interactive net-port console: raw terminal
// mode via golang.org/x/term, single keypresses via
// github.com/eiannone/keyboard, mapped onto hart net ports the way a
// keypress maps onto a memory-mapped status register.
func runMonitor(harts []*hart.Hart, logger *rvlog.Logger) error {
	if len(harts) == 0 {
		return fmt.Errorf("no harts configured")
	}
	active := harts[0]

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("putting terminal into raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("opening keyboard: %w", err)
	}
	defer keyboard.Close()

	fmt.Fprintln(os.Stdout, "rvtrapsim monitor: h=haltreq s=step n=nmi r=reset 1-9=irq q=quit\r")

	for {
		ch, key, err := keyboard.GetSingleKey()
		if key == keyboard.KeyCtrlC {
			logger.Printf("monitor: interrupted")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading key: %w", err)
		}

		switch ch {
		case 'q':
			return nil
		case 'h':
			active.Haltreq(true)
			active.Haltreq(false)
		case 's':
			active.OnFetch()
		case 'n':
			active.NMILevel(true)
			active.NMILevel(false)
		case 'r':
			active.ResetLevel(true)
			active.ResetLevel(false)
		default:
			if ch >= '1' && ch <= '9' {
				id := int(ch - '1')
				active.PerInterrupt(id, true, true, false)
				active.PerInterrupt(id, false, true, false)
			}
		}
	}
}
