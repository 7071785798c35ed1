package main

import (
	"gitee.com/flycash/notification-service/internal/ioc"
	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
)

// 通知接收端：暴露 HTTP 接口，把通知写进消息队列后立即返回。
func main() {
	if err := ego.New().Serve(
		ioc.InitWebServer(),
	).Run(); err != nil {
		elog.Panic("启动通知接收服务失败", elog.FieldErr(err))
	}
}
