package solana

import "encoding/json"

// SignatureInfo is one entry from getSignaturesForAddress
type SignatureInfo struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	Err       any    `json:"err"`
}

// Transaction is a jsonParsed getTransaction result, reduced to the fields
// the swap matcher inspects
type Transaction struct {
	BlockTime   *int64             `json:"blockTime"`
	Meta        *TransactionMeta   `json:"meta"`
	Transaction TransactionPayload `json:"transaction"`
}

type TransactionPayload struct {
	Message Message `json:"message"`
}

type Message struct {
	AccountKeys  []AccountKey  `json:"accountKeys"`
	Instructions []Instruction `json:"instructions"`
}

// AccountKey handles both the plain-string and the object encoding the
// jsonParsed format emits
type AccountKey struct {
	Pubkey string
}

func (k *AccountKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		k.Pubkey = s
		return nil
	}
	var obj struct {
		Pubkey string `json:"pubkey"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	k.Pubkey = obj.Pubkey
	return nil
}

type Instruction struct {
	ProgramID string             `json:"programId"`
	Parsed    *ParsedInstruction `json:"parsed"`
}

// ParsedInstruction tolerates the non-object "parsed" values some programs
// emit by swallowing them during unmarshal
type ParsedInstruction struct {
	Type string          `json:"type"`
	Info InstructionInfo `json:"info"`
}

func (p *ParsedInstruction) UnmarshalJSON(data []byte) error {
	type alias ParsedInstruction
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		// Some instructions carry a bare string here
		return nil
	}
	*p = ParsedInstruction(a)
	return nil
}

type InstructionInfo struct {
	Mint        string       `json:"mint"`
	Symbol      string       `json:"symbol"`
	TokenAmount *TokenAmount `json:"tokenAmount"`
}

type TokenAmount struct {
	UIAmount *float64 `json:"uiAmount"`
}

type TransactionMeta struct {
	InnerInstructions []InnerInstructionGroup `json:"innerInstructions"`
	PostTokenBalances []TokenBalance          `json:"postTokenBalances"`
	LogMessages       []string                `json:"logMessages"`
}

type InnerInstructionGroup struct {
	Instructions []Instruction `json:"instructions"`
}

type TokenBalance struct {
	Mint          string      `json:"mint"`
	Owner         string      `json:"owner"`
	UITokenAmount TokenAmount `json:"uiTokenAmount"`
}
