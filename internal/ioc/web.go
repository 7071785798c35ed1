package ioc

import (
	"gitee.com/flycash/notification-service/internal/api/web"
	notificationevt "gitee.com/flycash/notification-service/internal/event/notification"
	"github.com/gotomicro/ego/server/egin"
)

// InitWebServer 组装通知接收端的 HTTP 服务。
func InitWebServer() *egin.Component {
	server := egin.Load("server.http").Build()

	cfg := initMQConfig()
	var handler *web.Handler
	if cfg.Mock {
		mq := InitMemoryMQ(cfg)
		p, err := mq.Producer()
		if err != nil {
			panic(err)
		}
		handler = web.NewHandler(
			notificationevt.NewEventProducer(p, cfg.Topic),
			InitStatusStore(),
			mq)
	} else {
		p := initKafkaProducer(cfg.Kafka)
		handler = web.NewHandler(
			notificationevt.NewEventProducer(p, cfg.Topic),
			InitStatusStore(),
			nil)
	}
	handler.RegisterRoutes(server)
	return server
}
