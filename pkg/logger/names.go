package logger

const (
	Main      = "main"
	Router    = "router"
	Resolver  = "router.resolve"
	Dataplane = "dataplane"
	Egress    = "dataplane.egress"
	Events    = "events"
	Exporter  = "exporter"
	Config    = "config"
)
