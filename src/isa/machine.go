package isa

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// MachineKind selects which Cost table is active.
type MachineKind int

// Machine is the cost-table selector. Entering the function named "oracle"
// switches it to Oracle; returning from any function switches it back to
// Normal. In the original C++ source this was a single process-wide global;
// here it is owned by exec.State so that each Run call gets its own,
// independent machine (see SPEC_FULL.md §5).
type Machine struct {
	kind MachineKind
	cost *Cost
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	Normal MachineKind = iota
	Oracle

	NumMachines
)

// -------------------
// ----- Globals -----
// -------------------

// machineNames gives the inst-log row prefix for each MachineKind.
var machineNames = [...]string{
	Normal: "Normal",
	Oracle: "Oracle",
}

// ---------------------
// ----- Functions -----
// ---------------------

// String returns the inst-log row prefix of the MachineKind.
func (k MachineKind) String() string {
	if int(k) < 0 || int(k) >= len(machineNames) {
		return "Unknown"
	}
	return machineNames[k]
}

// NewMachine returns a Machine in Normal mode.
func NewMachine() *Machine {
	return &Machine{kind: Normal, cost: &NormalCost}
}

// Kind returns the active MachineKind.
func (m *Machine) Kind() MachineKind {
	return m.kind
}

// Cost returns the active Cost table.
func (m *Machine) Cost() *Cost {
	return m.cost
}

// IsOracle reports whether the machine is currently in Oracle mode.
func (m *Machine) IsOracle() bool {
	return m.kind == Oracle
}

// SwitchToOracle enters Oracle mode. Called when a Call targets the
// function literally named "oracle".
func (m *Machine) SwitchToOracle() {
	m.kind = Oracle
	m.cost = &OracleCost
}

// SwitchToNormal enters Normal mode. Called unconditionally on every Ret.
func (m *Machine) SwitchToNormal() {
	m.kind = Normal
	m.cost = &NormalCost
}

// IsOracleFunction reports whether fname is the distinguished oracle
// function name that triggers a machine-mode switch on Call.
func IsOracleFunction(fname string) bool {
	return fname == "oracle"
}
