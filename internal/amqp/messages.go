package amqp

import (
	"encoding/json"
	"time"
)

// ConsultaSyncMessage anuncia uma consulta gravada para exportação.
// Carrega só ID e versão; o worker busca o registro completo no banco.
type ConsultaSyncMessage struct {
	ID        int64     `json:"id"`
	Versao    int64     `json:"versao"`
	Timestamp time.Time `json:"timestamp"`
}

func NewConsultaSyncMessage(id, versao int64) *ConsultaSyncMessage {
	return &ConsultaSyncMessage{
		ID:        id,
		Versao:    versao,
		Timestamp: time.Now(),
	}
}

func (m *ConsultaSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ConsultaSyncMessageFromJSON(data []byte) (*ConsultaSyncMessage, error) {
	var msg ConsultaSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
