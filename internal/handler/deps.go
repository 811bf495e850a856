package handler

import (
	"codecollab/internal/app/collab"
	"codecollab/internal/configs"
	"codecollab/internal/ws"
)

type AppDeps struct {
	Hub       *collab.Hub
	Transport *ws.Transport
	Config    *configs.AppConfig
}
