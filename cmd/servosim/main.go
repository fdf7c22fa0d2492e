package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/golang/glog"

	"github.com/blackmoon/servo.go/pkg/board"
	"github.com/blackmoon/servo.go/pkg/eeprom"
	"github.com/blackmoon/servo.go/pkg/env"
	fx "github.com/blackmoon/servo.go/pkg/framework"
	"github.com/blackmoon/servo.go/pkg/uart"
	"github.com/blackmoon/servo.go/pkg/uart/websocket"
)

func init() {
	env.SetupSimFlags()
}

func loadImage(mem *eeprom.Memory, path string) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()
	if err := mem.Load(f); err != nil {
		log.Fatalln(err)
	}
	glog.Infof("loaded %s", path)
}

func saveImage(mem *eeprom.Memory, path string) {
	mem.Flush()
	f, err := os.Create(path)
	if err != nil {
		glog.Errorf("save eeprom: %v", err)
		return
	}
	defer f.Close()
	if err := mem.Save(f); err != nil {
		glog.Errorf("save eeprom: %v", err)
	}
}

func main() {
	flag.Parse()
	conf := env.NewConfig()

	mem := eeprom.NewMemory()
	loadImage(mem, conf.EEPROMImage)

	port := &uart.Switch{}
	b, err := board.New(board.Config{
		Port:   port,
		EEPROM: mem,
		App:    &simApp{},
		LED: board.LEDFunc(func(on bool) {
			glog.V(4).Infof("led %v", on)
		}),
	})
	if err != nil {
		log.Fatalln(err)
	}
	b.ReportCommits()
	defer saveImage(mem, conf.EEPROMImage)

	mux := http.NewServeMux()
	mux.Handle("/uart", websocket.Handler(func(link *websocket.Link) {
		// the receive staging buffer takes a single writer
		if !port.TryAttach(link) {
			glog.Warningf("uart busy, refusing %s", link.Request().RemoteAddr)
			return
		}
		defer port.Detach(link)
		if err := uart.NewStream(link, b).Run(link.Request().Context()); err != nil && err != context.Canceled {
			glog.Warningf("uart: %v", err)
		}
	}))
	server := &http.Server{Addr: conf.Listen, Handler: mux}
	glog.Infof("serving uart on ws://%s/uart", conf.Listen)

	loop := fx.NewLoop().Add(b)
	runner := fx.NewRunner().HandleSignals().Go(
		loop,
		fx.NamedRun("http", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCancel(ctx, func() { server.Close() }, server.ListenAndServe)
		})),
	)
	if err := runner.Wait(); err != nil {
		glog.Errorf("%v", err)
	}
}
