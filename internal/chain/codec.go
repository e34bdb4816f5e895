package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/blues/ivs/internal/engine"
)

// eventABI 与链上投票合约一致的事件定义
const eventABI = `[
	{"type":"event","name":"PhaseChanged","anonymous":false,"inputs":[
		{"name":"from","type":"uint8","indexed":false},
		{"name":"to","type":"uint8","indexed":false}]},
	{"type":"event","name":"VoterRegistered","anonymous":false,"inputs":[
		{"name":"voter","type":"address","indexed":true}]},
	{"type":"event","name":"ProposalSubmitted","anonymous":false,"inputs":[
		{"name":"index","type":"uint256","indexed":true},
		{"name":"proposer","type":"address","indexed":true},
		{"name":"description","type":"string","indexed":false}]},
	{"type":"event","name":"VoteCast","anonymous":false,"inputs":[
		{"name":"voter","type":"address","indexed":true},
		{"name":"proposalIndex","type":"uint256","indexed":true}]},
	{"type":"event","name":"ContributionReceived","anonymous":false,"inputs":[
		{"name":"contributor","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"RewardParamsSet","anonymous":false,"inputs":[
		{"name":"name","type":"string","indexed":false},
		{"name":"symbol","type":"string","indexed":false}]}
]`

// Log 编码后的事件日志
type Log struct {
	Topics []common.Hash
	Data   []byte
}

// Codec 引擎事件与 ABI 日志之间的编解码
type Codec struct {
	abi abi.ABI
}

// NewCodec 解析内置的事件 ABI
func NewCodec() (*Codec, error) {
	parsed, err := abi.JSON(strings.NewReader(eventABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse event ABI: %w", err)
	}
	return &Codec{abi: parsed}, nil
}

// args 按 ABI 输入顺序展开事件字段
func args(evt engine.Event) ([]interface{}, error) {
	switch e := evt.(type) {
	case engine.PhaseChanged:
		return []interface{}{uint8(e.From), uint8(e.To)}, nil
	case engine.VoterRegistered:
		return []interface{}{e.Voter}, nil
	case engine.ProposalSubmitted:
		return []interface{}{new(big.Int).SetUint64(e.Index), e.Proposer, e.Description}, nil
	case engine.VoteCast:
		return []interface{}{e.Voter, new(big.Int).SetUint64(e.ProposalIndex)}, nil
	case engine.ContributionReceived:
		return []interface{}{e.Contributor, e.Amount.ToBig()}, nil
	case engine.RewardParamsSet:
		return []interface{}{e.Name, e.Symbol}, nil
	default:
		return nil, fmt.Errorf("unsupported event %T", evt)
	}
}

// Encode 编码为 topics 和 data
func (c *Codec) Encode(evt engine.Event) (*Log, error) {
	event, ok := c.abi.Events[evt.EventType()]
	if !ok {
		return nil, fmt.Errorf("event %s not in ABI", evt.EventType())
	}
	values, err := args(evt)
	if err != nil {
		return nil, err
	}

	log := &Log{Topics: []common.Hash{event.ID}}
	var data []interface{}
	for i, input := range event.Inputs {
		if !input.Indexed {
			data = append(data, values[i])
			continue
		}
		topic, err := topicValue(values[i])
		if err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", event.Name, input.Name, err)
		}
		log.Topics = append(log.Topics, topic)
	}

	log.Data, err = event.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", event.Name, err)
	}
	return log, nil
}

func topicValue(v interface{}) (common.Hash, error) {
	switch x := v.(type) {
	case common.Address:
		return common.BytesToHash(x.Bytes()), nil
	case *big.Int:
		return common.BigToHash(x), nil
	default:
		return common.Hash{}, fmt.Errorf("unsupported indexed type %T", v)
	}
}

// Decode 解析事件日志
func (c *Codec) Decode(log *Log) (map[string]interface{}, error) {
	if log == nil || len(log.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}
	event, err := c.abi.EventByID(log.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("unknown event signature %s: %w", log.Topics[0].Hex(), err)
	}

	result := map[string]interface{}{"eventName": event.Name}
	topic := 1
	for _, input := range event.Inputs {
		if !input.Indexed {
			continue
		}
		if topic >= len(log.Topics) {
			return nil, fmt.Errorf("missing topic for %s.%s", event.Name, input.Name)
		}
		result[input.Name] = parseTopicValue(log.Topics[topic], input.Type)
		topic++
	}
	if len(log.Data) > 0 {
		if err := event.Inputs.NonIndexed().UnpackIntoMap(result, log.Data); err != nil {
			return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
		}
	}
	return result, nil
}

// parseTopicValue 解析主题值
func parseTopicValue(topic common.Hash, t abi.Type) interface{} {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		return new(big.Int).SetBytes(topic.Bytes())
	case abi.AddressTy:
		return common.BytesToAddress(topic.Bytes())
	default:
		return topic.Hex()
	}
}
