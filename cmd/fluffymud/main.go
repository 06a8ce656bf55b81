// Command fluffymud is the driver's bootstrap entry point: it wires the
// process-wide shutdown signal, the File Daemon, the config loader/watcher,
// and the TCP acceptor together, and can itself be installed as an OS
// service.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kardianos/service"

	fdconfig "github.com/fluffybytesoftware/fluffymud/internal/config"
	"github.com/fluffybytesoftware/fluffymud/internal/filedaemon"
	"github.com/fluffybytesoftware/fluffymud/internal/shutdown"
	"github.com/fluffybytesoftware/fluffymud/logging"
	"github.com/fluffybytesoftware/fluffymud/netio"
)

const listenAddr = ":4242"

type program struct {
	svc    service.Service
	sig    *shutdown.Signal
	daemon *filedaemon.Daemon
	cancel context.CancelFunc

	acceptorDone chan struct{}
}

func (p *program) Start(s service.Service) error {
	p.svc = s
	p.sig = shutdown.New()

	configPath := "fluffymud.conf"
	cfg, err := fdconfig.Load(configPath)
	if err != nil {
		logging.L.Error(err).WithMessage("failed to load config, using defaults").Write()
		cfg = filedaemon.DefaultConfig()
	}

	p.daemon = filedaemon.New(cfg, nil)
	if err := p.daemon.Start(p.sig); err != nil {
		logging.L.Error(err).WithMessage("failed to start file daemon").Write()
		return err
	}

	watcher, err := fdconfig.NewWatcher(func(reloaded filedaemon.Config) {
		logging.L.Info().WithField("path", configPath).WithMessage("config reloaded").Write()
		_ = reloaded // hot interval/threshold changes take effect on next daemon restart
	})
	if err == nil {
		if err := watcher.Watch(configPath); err != nil {
			logging.L.Warn().WithField("path", configPath).WithMessage("config watch failed").Write()
		}
		p.sig.Register(func() { watcher.Close() })
	}

	ctx, cancel := context.WithCancel(p.sig.Context())
	p.cancel = cancel
	p.acceptorDone = make(chan struct{})

	acceptor, err := netio.Listen(listenAddr, netio.EchoHandler)
	if err != nil {
		logging.L.Error(err).WithField("addr", listenAddr).WithMessage("failed to bind listener").Write()
		return err
	}

	go func() {
		defer close(p.acceptorDone)
		if err := acceptor.Serve(ctx); err != nil {
			logging.L.Error(err).WithMessage("acceptor stopped with error").Write()
		}
	}()

	logging.L.Info().WithField("addr", listenAddr).WithMessage("fluffymud listening").Write()
	return nil
}

func (p *program) Stop(s service.Service) error {
	p.sig.Trigger()
	if p.cancel != nil {
		p.cancel()
	}
	if p.acceptorDone != nil {
		<-p.acceptorDone
	}
	return nil
}

func main() {
	svcConfig := &service.Config{
		Name:        "FluffyMUD",
		DisplayName: "FluffyMUD Driver",
		Description: "Tick-driven file-backed MUD driver",
	}

	prg := &program{}
	s, err := service.New(prg, svcConfig)
	if err != nil {
		logging.L.Error(err).WithMessage("failed to initialize service wrapper").Write()
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		if err := handleServiceCommand(s, os.Args[1]); err != nil {
			logging.L.Error(err).WithMessage("service command failed").Write()
			os.Exit(1)
		}
		return
	}

	// s.Run calls prg.Start, blocks until an OS shutdown request arrives
	// (service manager stop, or — when running interactively — the usual
	// interrupt/terminate signals), then calls prg.Stop.
	if err := s.Run(); err != nil {
		logging.L.Error(err).WithMessage("service run exited with error").Write()
		os.Exit(1)
	}
}

func handleServiceCommand(s service.Service, cmd string) error {
	switch cmd {
	case "version":
		fmt.Println(filepath.Base(os.Args[0]))
		return nil
	default:
		return service.Control(s, cmd)
	}
}
