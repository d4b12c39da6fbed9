package mirror

// Transaction is a mirror-node transaction record.
type Transaction struct {
	ChargedTxFee       int64   `json:"charged_tx_fee"`
	ConsensusTimestamp string  `json:"consensus_timestamp"`
	EntityID           *string `json:"entity_id"`
	MemoBase64         string  `json:"memo_base64"`
	Name               string  `json:"name"`
	Node               string  `json:"node"`
	Result             string  `json:"result"`
	TransactionID      string  `json:"transaction_id"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

// ContractResult is a mirror-node smart-contract call result.
type ContractResult struct {
	ContractID   string `json:"contract_id"`
	CallResult   string `json:"call_result"`
	ErrorMessage string `json:"error_message"`
	GasUsed      int64  `json:"gas_used"`
	Hash         string `json:"hash"`
	Result       string `json:"result"`
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
}
