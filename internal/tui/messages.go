package tui

import (
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database/repository"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/service"
)

type transportCheckedMsg struct{ err error }

type deviceFoundMsg struct {
	dev device.Device
	err error
}

// catalogLoadedMsg and packagesLoadedMsg carry the load generation they were
// started under; anything older than the current one is dropped.
type catalogLoadedMsg struct {
	gen    int
	result catalog.Result
}

type packagesLoadedMsg struct {
	gen   int
	store *packages.Store
	err   error
}

type batchDoneMsg struct {
	gen        int
	completion service.Completion
}

type backupSavedMsg struct {
	backup repository.Backup
	err    error
}

type restorePlannedMsg struct {
	gen     int
	backup  *repository.Backup
	batches []service.Batch
	err     error
}

type configSavedMsg struct{ err error }
