package eth

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Topic 0 of every ERC-721 Transfer log
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// Minimal ERC-721 metadata surface, enough to resolve the token URI and the
// collection name of a detected deposit
const erc721AbiJson = `[
	{"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

var erc721Abi = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc721AbiJson))
	if err != nil {
		panic(err)
	}
	return parsed
}()

func GetBlockHeight(ctx context.Context, client *ethclient.Client) (height int64, err error) {
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return
	}

	height = header.Number.Int64()
	return
}

// FilterTransfers scans a block range for ERC-721 transfers into any of the
// recipient addresses. ERC-20 transfers share the topic but carry only three
// topics, those don't match the four-topic filter.
func FilterTransfers(ctx context.Context, client *ethclient.Client, fromBlock int64, toBlock int64, recipients []common.Address) (logs []types.Log, err error) {
	recipientTopics := make([]common.Hash, len(recipients))
	for i, recipient := range recipients {
		recipientTopics[i] = common.BytesToHash(recipient.Bytes())
	}

	return client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(fromBlock),
		ToBlock:   big.NewInt(toBlock),
		Topics: [][]common.Hash{
			{TransferTopic},
			nil,
			recipientTopics,
		},
	})
}

// ParseTransfer decodes one Transfer log, ok is false for non ERC-721 shapes
func ParseTransfer(log types.Log) (from common.Address, to common.Address, tokenId *big.Int, ok bool) {
	if len(log.Topics) != 4 || log.Topics[0] != TransferTopic {
		return
	}

	from = common.BytesToAddress(log.Topics[1].Bytes())
	to = common.BytesToAddress(log.Topics[2].Bytes())
	tokenId = log.Topics[3].Big()
	ok = true
	return
}

func callString(ctx context.Context, client *ethclient.Client, contract common.Address, method string, args ...interface{}) (out string, err error) {
	data, err := erc721Abi.Pack(method, args...)
	if err != nil {
		return
	}

	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return
	}

	values, err := erc721Abi.Unpack(method, result)
	if err != nil {
		return
	}
	if len(values) == 0 {
		err = errors.New("empty contract call result")
		return
	}

	out, _ = values[0].(string)
	return
}

func TokenURI(ctx context.Context, client *ethclient.Client, contract common.Address, tokenId *big.Int) (uri string, err error) {
	return callString(ctx, client, contract, "tokenURI", tokenId)
}

func CollectionName(ctx context.Context, client *ethclient.Client, contract common.Address) (name string, err error) {
	return callString(ctx, client, contract, "name")
}
