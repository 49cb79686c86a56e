package tui

// Phase is where the session is in the load/apply cycle.
type Phase int

const (
	FindingDevice Phase = iota
	DownloadingList
	LoadingPackages
	Ready
	RestoringDevice
)

func (p Phase) String() string {
	switch p {
	case FindingDevice:
		return "finding_device"
	case DownloadingList:
		return "downloading_list"
	case LoadingPackages:
		return "loading_packages"
	case Ready:
		return "ready"
	case RestoringDevice:
		return "restoring_device"
	}
	return "unknown"
}

// interactive reports whether the package list is on screen.
func (p Phase) interactive() bool {
	return p == Ready || p == RestoringDevice
}
