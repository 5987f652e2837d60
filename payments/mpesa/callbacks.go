package mpesa

// Структуры callback-ов Daraja. Формы вложенности повторяют JSON шлюза.

type STKCallbackEnvelope struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []CallbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// Amount достаёт сумму платежа из метаданных успешного STK callback-а.
func (c *STKCallback) Amount() (float64, bool) {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name == "Amount" {
			if v, ok := item.Value.(float64); ok {
				return v, true
			}
		}
	}
	return 0, false
}

type B2CResultEnvelope struct {
	Result B2CResult `json:"Result"`
}

type B2CResult struct {
	ResultCode               int    `json:"ResultCode"`
	ResultDesc               string `json:"ResultDesc"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ConversationID           string `json:"ConversationID"`
	TransactionID            string `json:"TransactionID"`
}
