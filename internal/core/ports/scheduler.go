package ports

type SchedulerService interface {
	Start()
	Stop()

	AfterNow(expiry int64) bool
	ScheduleTaskOnce(at int64, task func()) error
}
