// Package peak holds the peak-list data model and its debounced change
// notification.
//
// A Registry owns named peak lists. Each List stores peaks keyed by an id
// that is assigned monotonically at insertion and never reused, and keeps
// insertion order for iteration. Every mutation raises one of three atomic
// flags on the list (peak content, list metadata, peak count) and pokes the
// registry's Scheduler, which coalesces bursts of mutations into at most one
// notification round per quiet window:
//
//	reg := peak.NewRegistry()
//	sched := peak.NewScheduler(reg, peak.WithWindow(50*time.Millisecond))
//	defer sched.Shutdown()
//
//	list, _ := reg.Create("hsqc", 2)
//	list.Subscribe(func(l *peak.List, kind peak.ChangeKind) { ... })
//	p := list.AddPeak()
//	p.Dim(0).SetChemShift(8.21)
//
// Flags are read and cleared by a single scan at a time, so listeners never
// run concurrently with each other and a flag raised during a scan always
// leads to a later scan.
package peak
