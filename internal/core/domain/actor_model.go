package domain

const (
	ACTOR_ID_BRIDGE = "bridge"
)

type ActorHealthRequest struct{}

type ActorHealthResponse struct {
	Id      string
	Healthy bool
	State   string
}
