package config

import (
	"errors"

	"dualtor-linkmgrd/pkg/linkmgr"
)

// ErrMissingDeviceMAC and ErrMissingLoopbackIPv4 carry linkmgr.KindConfigNotFound
// (§7): mandatory startup configuration that must abort the process before
// any supervisors are created. linkmgr.Kind.Fatal reports this for both.
var (
	ErrMissingDeviceMAC    = &linkmgr.Error{Kind: linkmgr.KindConfigNotFound, Err: errors.New("Config:DeviceMetadata.mac not found")}
	ErrMissingLoopbackIPv4 = &linkmgr.Error{Kind: linkmgr.KindConfigNotFound, Err: errors.New("Config:LoopbackInterfaces Loopback2 IPv4 not found")}
)
