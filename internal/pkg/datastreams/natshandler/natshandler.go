package natshandler

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/ohowland/dres_core/internal/pkg/msg"

	nats "github.com/nats-io/nats.go"
)

type Handler struct {
	mux    *sync.Mutex
	inbox  <-chan msg.Msg
	pid    uuid.UUID
	config config
	stop   chan bool
}

type config struct {
	Server string `json:"Server"`
}

func (h Handler) PID() uuid.UUID {
	return h.pid
}

func redirectMsg(wg *sync.WaitGroup, chIn <-chan msg.Msg, chOut chan<- msg.Msg) {
	defer wg.Done()
	for m := range chIn {
		chOut <- m
	}
}

func New(configPath string, system msg.Publisher) (Handler, error) {
	jsonConfig, err := ioutil.ReadFile(configPath)
	if err != nil {
		return Handler{}, err
	}
	cfg := config{}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return Handler{}, err
	}

	pid, err := uuid.NewUUID()
	if err != nil {
		return Handler{}, err
	}

	inbox := make(chan msg.Msg, 50)
	wg := &sync.WaitGroup{}

	chInstance, err := system.Subscribe(pid, msg.Instance)
	if err != nil {
		return Handler{}, err
	}
	wg.Add(1)
	go redirectMsg(wg, chInstance, inbox)

	chSchedule, err := system.Subscribe(pid, msg.Schedule)
	if err != nil {
		return Handler{}, err
	}
	wg.Add(1)
	go redirectMsg(wg, chSchedule, inbox)

	// the inbox closes once every subscription has closed, so Process
	// drains pending messages and returns after the publisher stops.
	go func() {
		wg.Wait()
		close(inbox)
	}()

	stop := make(chan bool)

	return Handler{
		mux:    &sync.Mutex{},
		inbox:  inbox,
		pid:    pid,
		config: cfg,
		stop:   stop,
	}, nil
}

func (h *Handler) Stop() {
	h.stop <- true
}

func (h Handler) Process() {
	log.Println("[NATS client] Process Started")
	nc, err := nats.Connect(h.config.Server)
	if err != nil {
		log.Println("[NATS client]", err)
		return
	}
	defer nc.Close()

loop:
	for {
		select {
		case m, ok := <-h.inbox:
			if !ok {
				break loop
			}
			data, err := json.Marshal(m.Payload())
			if err != nil {
				continue
			}
			var subject string
			switch m.Topic() {
			case msg.Instance:
				subject = "dres.instance"
			case msg.Schedule:
				subject = "dres.schedule"
			default:
				continue
			}
			if err = nc.Publish(subject, data); err != nil {
				log.Printf("unable to publish to nats server: %v", err)
			}

		case <-h.stop:
			break loop
		}
	}
	log.Println("[NATS client] Process Shutdown")
}
