package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/phuhao00/actorcore/actor"
	"github.com/phuhao00/actorcore/autoscale"
	"github.com/phuhao00/actorcore/autoscale/consulsignal"
	"github.com/phuhao00/actorcore/config"
	"github.com/phuhao00/actorcore/deadletter/nsqsink"
	"github.com/phuhao00/actorcore/diagnostics"
	"github.com/phuhao00/actorcore/persistence/mongodriver"
	"github.com/phuhao00/actorcore/persistence/redisdriver"
)

const serverName = "actorsystem"

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("%s starting...", serverName)

	cfg, err := config.LoadFrom("config/actorsystem.yaml")
	if err != nil {
		log.Printf("%s: using default runtime config, could not load config/actorsystem.yaml: %v", serverName, err)
		cfg = &config.Config{Runtime: config.RuntimeConfig{}}
	}

	opts := []actor.SystemOption{
		actor.WithFailsafeHandler(actor.DefaultFailsafeHandler),
	}

	if sink, err := nsqsink.New(cfg.NSQ); err != nil {
		log.Printf("%s: dead-letter sink disabled, NSQ not configured: %v", serverName, err)
	} else {
		opts = append(opts, actor.WithDeadLetterSink(sink))
		defer sink.Stop()
		log.Println("dead-letter sink wired to NSQ")
	}

	switch cfg.Runtime.PersistenceDriver {
	case "redis":
		driver, err := redisdriver.New(cfg.Redis)
		if err != nil {
			log.Printf("%s: persistence disabled, redis driver failed: %v", serverName, err)
		} else {
			opts = append(opts, actor.WithPersistenceDriver(driver))
			defer driver.Close()
			log.Println("persistence driver wired to Redis streams")
		}
	case "mongo":
		driver, err := mongodriver.New(cfg.Mongo)
		if err != nil {
			log.Printf("%s: persistence disabled, mongo driver failed: %v", serverName, err)
		} else {
			opts = append(opts, actor.WithPersistenceDriver(driver))
			defer driver.Close()
			log.Println("persistence driver wired to MongoDB")
		}
	default:
		log.Println("persistence driver not configured, Context.Persist/Recover will return ErrNoPersistenceDriver")
	}

	system, err := actor.NewSystem(cfg.Runtime.ToActorConfig(), opts...)
	if err != nil {
		log.Fatalf("%s: failed to start actor system: %v", serverName, err)
	}
	log.Println("actor system started")

	health := diagnostics.New()
	health.WatchFailsafe(system)
	grpcServer := grpc.NewServer()
	health.Register(grpcServer)

	listenAddr := "0.0.0.0:7790"
	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Fatalf("%s: failed to listen for diagnostics on %s: %v", serverName, listenAddr, err)
	}
	go func() {
		log.Printf("diagnostics health service listening on %s", listenAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("%s: diagnostics server stopped: %v", serverName, err)
		}
	}()

	var stopAutoscale func()
	if cfg.Runtime.HorizontalPodAutoscalerEnabled {
		if sig, err := consulsignal.New(cfg.Consul); err != nil {
			log.Printf("%s: autoscale signal disabled, consul not configured: %v", serverName, err)
		} else {
			interval := cfg.Runtime.ToActorConfig().HorizontalPodAutoscalerSyncTime
			if interval <= 0 {
				interval = 30 * time.Second
			}
			stopAutoscale = pollAutoscaleSignal(sig, interval)
		}
	}

	runDemo(system)

	log.Printf("%s fully initialized and running...", serverName)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Printf("shutting down %s...", serverName)
	if stopAutoscale != nil {
		stopAutoscale()
	}
	system.AwaitTermination()
	grpcServer.GracefulStop()
	log.Printf("%s shut down gracefully.", serverName)
}

// pollAutoscaleSignal runs the given autoscale.Signal on its own ticker,
// fully decoupled from the System: it only logs the desired capacity,
// since resizing policy is deliberately left to an external operator.
func pollAutoscaleSignal(sig autoscale.Signal, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				desired, err := sig.Poll()
				if err != nil {
					log.Printf("autoscale: poll failed: %v", err)
					continue
				}
				log.Printf("autoscale: desired capacity resourceThreads=%d workers=%d", desired.ResourceThreads, desired.Workers)
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

// pingActor answers each PONG it receives with another PING until it has
// received three PONGs, demonstrating a plain Tell-style exchange between
// two top-level actors.
type pingActor struct {
	pongID actor.Identity
	pings  int
}

func (p *pingActor) Receive(ctx actor.Context, msg actor.Message) {
	switch msg.Value.(type) {
	case string:
		if msg.Value == "pong" {
			p.pings++
			if p.pings < 3 {
				ctx.Send(p.pongID, "ping", 0)
			}
		}
	}
}

type pongActor struct{}

func (pongActor) Receive(ctx actor.Context, msg actor.Message) {
	if msg.Value == "ping" {
		ctx.Send(msg.Source, "pong", 0)
	}
}

// runDemo spawns a tiny ping/pong pair so a fresh checkout has something
// observable running without any external dependency configured.
func runDemo(system *actor.System) {
	pongID, err := system.AddActor(func() actor.Actor { return pongActor{} }, actor.WithName("pong"))
	if err != nil {
		log.Printf("demo: failed to spawn pong actor: %v", err)
		return
	}
	pingID, err := system.AddActor(func() actor.Actor { return &pingActor{pongID: pongID} }, actor.WithName("ping"))
	if err != nil {
		log.Printf("demo: failed to spawn ping actor: %v", err)
		return
	}
	system.Send(actor.Message{Value: "ping", Source: pingID, Dest: pongID})
}
