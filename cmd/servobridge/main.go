package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/blackmoon/servo.go/pkg/bridge/mqtt"
	"github.com/blackmoon/servo.go/pkg/env"
	fx "github.com/blackmoon/servo.go/pkg/framework"
	"github.com/blackmoon/servo.go/pkg/tune"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	conf := env.NewConfig()

	link := tune.NewLink(conf.MustOpenLink())
	bridge, err := mqtt.NewBridge(conf.MQTTBrokerURL, mqtt.Meta{
		Board: conf.BoardID,
		Link:  conf.Port,
	}, link)
	if err != nil {
		log.Fatalln(err)
	}
	link.Handler = bridge
	glog.Infof("bridging %s as %s", conf.Port, conf.BoardID)

	runner := fx.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	defer cancel()
	// the bridge goes offline when the board link ends
	runner.GoWith(ctx,
		fx.NamedRun("link", fx.RunFunc(func(ctx context.Context) error {
			defer cancel()
			return link.Run(ctx)
		})),
		bridge,
	)
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
