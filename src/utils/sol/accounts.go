package sol

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Accounts owned by the reincarnation program, borsh encoded behind an
// 8 byte discriminator of sha256("account:<Name>")

type ProtocolConfig struct {
	Authority     solana.PublicKey
	GuildTreasury solana.PublicKey
	TeamTreasury  solana.PublicKey
	GuildShareBps uint16
	MintFee       uint64
	Paused        bool
	Bump          uint8
}

type CollectionConfig struct {
	SourceChain    uint16
	SourceContract []byte
	Name           string
	MaxSupply      uint64
	TotalMinted    uint64
	Active         bool
	Bump           uint8
}

type ReincarnationRecord struct {
	SealHash          [32]byte
	SourceChain       uint16
	SourceContract    []byte
	TokenId           []byte
	AttestationPubkey [32]byte
	Recipient         solana.PublicKey
	Mint              solana.PublicKey
	Minted            bool
	VerifiedAt        int64
	Bump              uint8
}

func accountDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:8]
}

func ParseProtocolConfig(data []byte) (out *ProtocolConfig, err error) {
	decoder, err := newAccountDecoder(data, "ProtocolConfig")
	if err != nil {
		return
	}

	out = new(ProtocolConfig)
	out.Authority = decoder.readPubkey()
	out.GuildTreasury = decoder.readPubkey()
	out.TeamTreasury = decoder.readPubkey()
	out.GuildShareBps = decoder.readU16()
	out.MintFee = decoder.readU64()
	out.Paused = decoder.readBool()
	out.Bump = decoder.readU8()

	if decoder.err != nil {
		return nil, decoder.err
	}
	return
}

func ParseCollectionConfig(data []byte) (out *CollectionConfig, err error) {
	decoder, err := newAccountDecoder(data, "CollectionConfig")
	if err != nil {
		return
	}

	out = new(CollectionConfig)
	out.SourceChain = decoder.readU16()
	out.SourceContract = decoder.readBytesVec()
	out.Name = decoder.readString()
	out.MaxSupply = decoder.readU64()
	out.TotalMinted = decoder.readU64()
	out.Active = decoder.readBool()
	out.Bump = decoder.readU8()

	if decoder.err != nil {
		return nil, decoder.err
	}
	return
}

func ParseReincarnationRecord(data []byte) (out *ReincarnationRecord, err error) {
	decoder, err := newAccountDecoder(data, "ReincarnationRecord")
	if err != nil {
		return
	}

	out = new(ReincarnationRecord)
	copy(out.SealHash[:], decoder.read(32))
	out.SourceChain = decoder.readU16()
	out.SourceContract = decoder.readBytesVec()
	out.TokenId = decoder.readBytesVec()
	copy(out.AttestationPubkey[:], decoder.read(32))
	out.Recipient = decoder.readPubkey()
	out.Mint = decoder.readPubkey()
	out.Minted = decoder.readBool()
	out.VerifiedAt = decoder.readI64()
	out.Bump = decoder.readU8()

	if decoder.err != nil {
		return nil, decoder.err
	}
	return
}

// accountDecoder reads borsh fields sequentially, the first failure sticks
// and zeroes every later read
type accountDecoder struct {
	data []byte
	pos  int
	err  error
}

func newAccountDecoder(data []byte, name string) (self *accountDecoder, err error) {
	if len(data) < 8 {
		err = fmt.Errorf("account data too short for %s: %d bytes", name, len(data))
		return
	}
	if !bytes.Equal(data[:8], accountDiscriminator(name)) {
		err = fmt.Errorf("account discriminator mismatch, not a %s", name)
		return
	}

	self = &accountDecoder{data: data, pos: 8}
	return
}

func (self *accountDecoder) read(n int) []byte {
	if self.err != nil {
		return nil
	}
	if self.pos+n > len(self.data) {
		self.err = fmt.Errorf("account data truncated at byte %d", self.pos)
		return nil
	}
	out := self.data[self.pos : self.pos+n]
	self.pos += n
	return out
}

func (self *accountDecoder) readU8() uint8 {
	buf := self.read(1)
	if buf == nil {
		return 0
	}
	return buf[0]
}

func (self *accountDecoder) readBool() bool {
	return self.readU8() != 0
}

func (self *accountDecoder) readU16() uint16 {
	buf := self.read(2)
	if buf == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(buf)
}

func (self *accountDecoder) readU64() uint64 {
	buf := self.read(8)
	if buf == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(buf)
}

func (self *accountDecoder) readI64() int64 {
	return int64(self.readU64())
}

func (self *accountDecoder) readPubkey() (out solana.PublicKey) {
	copy(out[:], self.read(32))
	return
}

func (self *accountDecoder) readBytesVec() []byte {
	buf := self.read(4)
	if buf == nil {
		return nil
	}
	length := int(binary.LittleEndian.Uint32(buf))
	if length > len(self.data)-self.pos {
		self.err = fmt.Errorf("vec length %d exceeds remaining account data", length)
		return nil
	}
	out := make([]byte, length)
	copy(out, self.read(length))
	return out
}

func (self *accountDecoder) readString() string {
	return string(self.readBytesVec())
}
