package alloc

import (
	"golang.org/x/sys/unix"
)

func physicalMemory() (uint64, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		log.WithError(err).Warn("can't read sysinfo")
		return 0, false
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return uint64(info.Totalram) * unit, true
}
