// Package sh is the interactive tuning shell.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/blackmoon/servo.go/pkg/env"
	"github.com/blackmoon/servo.go/pkg/serial"
	"github.com/blackmoon/servo.go/pkg/tune"
	"github.com/blackmoon/servo.go/pkg/uart"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is a running tuning link to a board.
type Conn struct {
	Port   string
	Link   *tune.Link
	Cancel func()
}

// ParamInfo is a parameter with the value last reported by the board.
type ParamInfo struct {
	ID       uint8  `json:"id"`
	Name     string `json:"name"`
	Value    uint16 `json:"value"`
	Reported bool   `json:"reported"`
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&SetCmd,
		&GetCmd,
		&ParamsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the link to the board at port.
func (s *Shell) Connect(port string) error {
	conf := *s.Config
	conf.Port = port
	rw, err := conf.OpenLink()
	if err != nil {
		return err
	}
	conn := &Conn{Port: port, Link: tune.NewLink(rw)}
	var ctx context.Context
	ctx, conn.Cancel = context.WithCancel(context.Background())
	go func() {
		if err := conn.Link.Run(ctx); err != nil && err != context.Canceled {
			glog.Errorf("link %s: %v", port, err)
		}
	}()
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", port))
	return nil
}

// Disconnect closes the current link.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Params lists all parameters with the last reported values.
func (s *Shell) Params() []ParamInfo {
	var infos []ParamInfo
	for _, id := range serial.ParamIDs() {
		info := ParamInfo{ID: uint8(id), Name: id.String()}
		if s.Conn != nil {
			info.Value, info.Reported = s.Conn.Link.Last(id)
		}
		infos = append(infos, info)
	}
	return infos
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Port != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Port)
		}
		if err := s.Connect(s.Config.Port); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Port, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func (s *Shell) printJSON(c *ishell.Context, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

func parseParam(c *ishell.Context) (serial.ParamID, bool) {
	if len(c.Args) < 1 {
		c.Err(fmt.Errorf("parameter name required"))
		return 0, false
	}
	id, err := serial.ParseParamID(c.Args[0])
	if err != nil {
		c.Err(err)
		return 0, false
	}
	return id, true
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := uart.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				ShellFrom(c).printJSON(c, ports)
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// ConnectCmd connects a board.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			port := s.Config.Port
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if err := s.Connect(port); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current board.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// SetCmd sends a parameter.
	SetCmd = ishell.Cmd{
		Name:    "set",
		Aliases: []string{"s"},
		Help:    "NAME VALUE",
		Func: MustBeConnected(func(c *ishell.Context) {
			id, ok := parseParam(c)
			if !ok {
				return
			}
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("value required"))
				return
			}
			value, err := strconv.ParseUint(c.Args[1], 0, 16)
			if err != nil {
				c.Err(fmt.Errorf("invalid value %q", c.Args[1]))
				return
			}
			if err := ShellFrom(c).Conn.Link.SetParam(id, uint16(value)); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// GetCmd prints the last value reported by the board.
	GetCmd = ishell.Cmd{
		Name:    "get",
		Aliases: []string{"g"},
		Help:    "NAME",
		Func: MustBeConnected(func(c *ishell.Context) {
			id, ok := parseParam(c)
			if !ok {
				return
			}
			value, ok := ShellFrom(c).Conn.Link.Last(id)
			if !ok {
				c.Err(fmt.Errorf("%s not reported", id))
				return
			}
			c.Println(value)
		}),
	}

	// ParamsCmd lists the parameters.
	ParamsCmd = ishell.Cmd{
		Name:    "params",
		Aliases: []string{"p"},
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infos := s.Params()
			if s.OutputJSON {
				s.printJSON(c, infos)
				return
			}
			for _, info := range infos {
				if info.Reported {
					c.Printf("%-9s 0x%02x %d\n", info.Name, info.ID, info.Value)
				} else {
					c.Printf("%-9s 0x%02x -\n", info.Name, info.ID)
				}
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	env.SetupFlags()
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
