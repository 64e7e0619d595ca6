package hart

import (
	"rvtrap/internal/clic"
	"rvtrap/internal/csr"
)

// Cluster holds the state shared at cluster scope rather than per
// hart: the leaf-hart lookup table and the shared `cliccfg`
// register (the CLIC memory-mapped region itself is addressed through
// clic.Decode/ReadByte/WriteByte per hart, since each hart owns its own
// clic.Engine instance — only the mode-interpretation configuration is
// genuinely shared).
//
// A single-CPU harness generalizes here to a hart table the way a
// multi-core SoC model would need; `refreshAllSelectors` iterates
// every leaf processor after a cluster-wide configuration change.
type Cluster struct {
	harts   []*Hart
	cliccfg csr.Cliccfg
}

// NewCluster allocates an empty cluster; harts register themselves via
// Register after construction (each Hart needs a *Cluster back-
// reference to read cliccfg, so the cluster must exist first).
func NewCluster() *Cluster {
	return &Cluster{}
}

// Register adds a constructed hart to the cluster's lookup table.
func (c *Cluster) Register(h *Hart) {
	c.harts = append(c.harts, h)
}

// Harts returns the registered harts in registration order.
func (c *Cluster) Harts() []*Hart { return c.harts }

// Cliccfg returns the shared cliccfg register.
func (c *Cluster) Cliccfg() csr.Cliccfg { return c.cliccfg }

// WriteCliccfg applies the cliccfg write procedure and re-selects on
// every registered hart, since the mode-interpretation table may have
// changed globally.
func (c *Cluster) WriteCliccfg(raw uint8, cfgMBits uint8) {
	c.cliccfg = csr.WriteCliccfg(c.cliccfg, raw, cfgMBits, c.cliccfg.Nvbits())
	c.refreshAllSelectors()
}

func (c *Cluster) refreshAllSelectors() {
	for _, h := range c.harts {
		if h.clic != nil {
			h.Reselect()
		}
	}
}

// DecodeMMIO demultiplexes a cluster-wide CLIC memory-mapped offset,
// returning the target hart along with the decoded address (nil hart
// and an Address with Control set for the shared control page, which this cluster
// resolves itself rather than delegating to a hart).
func (c *Cluster) DecodeMMIO(offset uint64) (h *Hart, addr clic.Address) {
	addr = clic.Decode(offset, len(c.harts))
	if addr.Control {
		return nil, addr
	}
	if addr.HartIdx < 0 || addr.HartIdx >= len(c.harts) {
		return nil, addr
	}
	return c.harts[addr.HartIdx], addr
}

// ReadMMIO reads one byte of the cluster's CLIC memory-mapped region.
// accessingMode is the privilege the access is made from (derived by
// the caller from which page range is being read, since the control
// page and per-mode leaf pages are gated the same way).
func (c *Cluster) ReadMMIO(offset uint64, accessingMode clic.PageMode) uint8 {
	target, addr := c.DecodeMMIO(offset)
	if addr.Control {
		return 0
	}
	if target == nil || target.clic == nil {
		return 0
	}
	return clic.ReadByte(target.clic, addr, target.modeConfig(), accessingMode)
}

// WriteMMIO writes one byte of the cluster's CLIC memory-mapped region
// and re-selects the affected hart.
func (c *Cluster) WriteMMIO(offset uint64, val uint8, accessingMode clic.PageMode) {
	target, addr := c.DecodeMMIO(offset)
	if addr.Control || target == nil || target.clic == nil {
		return
	}
	clic.WriteByte(target.clic, addr, target.modeConfig(), val)
	target.Reselect()
}
