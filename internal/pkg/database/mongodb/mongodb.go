package mongodb

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/ohowland/dres_core/internal/pkg/msg"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Handler struct {
	mux    *sync.Mutex
	inbox  <-chan msg.Msg
	pid    uuid.UUID
	config config
	stop   chan bool
}

type config struct {
	URI      string `json:"URI"`
	Database string `json:"Database"`
	Port     string `json:"Port"`
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

func msgToBSON(m msg.Msg) bson.D {
	//TODO: PID should be written as a binary of subtype 0x04 (UUID standard).
	// currently written as a string.
	return bson.D{
		{Key: "$set", Value: bson.M{
			"pid":  m.PID().String(),
			"data": m.Payload(),
		}},
	}
}

func (h *Handler) StopProcess() {
	h.stop <- true
}

func (h Handler) Process() {
	//TODO: Handle reconnection to the MongoDB resource
	client, err := mongo.NewClient(options.Client().ApplyURI(h.config.URI + ":" + h.config.Port))
	if err != nil {
		log.Println("[Mongo]", err)
		return
	}

	ctx := context.TODO()
	err = client.Connect(ctx)
	if err != nil {
		log.Println("[Mongo]", err)
		return
	}
	defer client.Disconnect(ctx)

loop:
	for {
		select {
		case m, ok := <-h.inbox:
			if !ok {
				break loop
			}
			switch m.Topic() {
			case msg.Instance:
				opts := options.Update().SetUpsert(true)
				_, err = client.Database(h.config.Database).Collection("drInstances").UpdateOne(
					ctx,
					bson.M{"pid": m.PID().String()},
					msgToBSON(m),
					opts,
				)

				if err != nil {
					log.Println("[Mongo]", err)
				}

			case msg.Schedule:
				opts := options.Update().SetUpsert(true)
				_, err = client.Database(h.config.Database).Collection("drSchedules").UpdateOne(
					ctx,
					bson.M{"pid": m.PID().String()},
					msgToBSON(m),
					opts,
				)

				if err != nil {
					log.Println("[Mongo]", err)
				}
			}
		case <-h.stop:
			break loop
		}
	}
	log.Println("[Mongo] Process Shutdown")
}
