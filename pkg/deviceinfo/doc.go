// Package deviceinfo provides the public API for embedding the device-info
// bridge. A host shell (a Lua script, a CLI, an application) sends a named
// action such as getBatteryInfo and receives the JSON result through a
// success callback, or a message through an error callback.
//
// # Basic Usage
//
//	d, err := deviceinfo.New("/etc/deviceinfo.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close()
//
//	payload, err := d.Call(ctx, deviceinfo.ActionBatteryInfo)
//
// # Configuration Sources
//
//   - Disk file: Use [New] to load from a filesystem path
//   - Embedded FS: Use [NewFromFS] to load from an [io/fs.FS]
//   - io.Reader: Use [NewFromReader] for dynamic configurations
//   - Defaults: Use [NewDefault] to read the local machine
//
// The configuration selects a transport: the local machine, an Android
// device reachable over SSH, or a device attached to an ADB server.
//
// # Callbacks
//
// [DeviceInfo.Dispatch] is the asynchronous command surface. Device
// attributes are read on a bounded worker pool, so the callback may run on
// another goroutine; battery and network reads complete before Dispatch
// returns. Exactly one of Success or Error is invoked per handled action.
//
// # Hot Reload
//
// With [Options.WatchConfig], edits to the configuration file rebuild the
// platform sources. Calls already in flight finish against the old sources.
package deviceinfo
