// Package platform provides the concrete platform sources behind the
// device-info readers.
//
// A Platform bundles the three collaborators consumed by package device
// (AttributeSource, BatterySource and NetworkSource) for one target:
//
//   - a local Android system, read through the device shell (getprop,
//     settings, wm, dumpsys) plus /proc for memory and processors
//   - a remote Android device, read through the same shell commands over
//     SSH or ADB; the target does not need anything installed
//   - a Linux host acting as the device, read from sysfs, /proc, gopsutil
//     and the X11 root screen
//
// # Usage
//
//	p, err := platform.New(platform.Config{Transport: platform.TransportLocal})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	if err := p.Initialize(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
//	attrs, err := device.ReadAttributes(ctx, p.Attributes())
//
// # Thread Safety
//
// All Platform and source implementations are safe for concurrent use from
// multiple goroutines. Sources hold no result state; every call reads the
// current system state.
package platform
