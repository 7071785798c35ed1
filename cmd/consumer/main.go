package main

import (
	"context"
	"os/signal"
	"syscall"

	"gitee.com/flycash/notification-service/internal/ioc"
	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
)

// 通知投递端：消费队列里的通知，渲染模板并经由对应渠道发出，
// 另起一个 HTTP 端口做健康检查。
func main() {
	// ego.New 负责加载配置，必须先于所有依赖 econf 的初始化
	app := ego.New()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	consumer := ioc.InitEventConsumer()
	consumer.Start(ctx)
	defer func() {
		if err := consumer.Close(); err != nil {
			elog.Warn("关闭消费者失败", elog.FieldErr(err))
		}
	}()

	if err := app.Serve(
		ioc.InitConsumerServer(),
	).Run(); err != nil {
		elog.Panic("启动通知投递服务失败", elog.FieldErr(err))
	}
}
