package jobs

import (
	"log"

	"mes.GO/config"
	"mes.GO/cron"
	trackingService "mes.GO/service/tracking"
)

func init() {
	cron.Register("trackingautocomplete", "@every 5m", AutoCompleteJob)
}

// AutoCompleteJob sweeps in-progress steps whose duration has elapsed
// and marks them done. Gated behind TRACKING_AUTO_COMPLETE=on; the
// transition flow itself never completes steps by clock.
func AutoCompleteJob(args ...string) {
	config.LoadAppConfig()
	if config.AppConfig == nil || !config.AppConfig.AutoComplete {
		return
	}
	db, err := config.NewDB()
	if err != nil {
		log.Printf("trackingautocomplete: db: %v", err)
		return
	}
	n, err := trackingService.NewEngine(db).AutoCompleteOverdue()
	if err != nil {
		log.Printf("trackingautocomplete: sweep: %v", err)
		return
	}
	if n > 0 {
		log.Printf("trackingautocomplete: completed %d overdue steps", n)
	}
}
