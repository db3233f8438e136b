package bulk

import (
	"fmt"

	"github.com/sqids/sqids-go"
)

// 打乱过的字母表，生成的 keyword 看起来不连续
const keywordAlphabet = "k3G7QAe51FCsiWrNOYBUwM6XzZvdLT4j9JhyHKg2cVbxfERq0mSoI8lDpunPat"

// KeywordGen 用 sqids 把递增序号编码成 keyword，同样的 seed 得到同样的序列。
type KeywordGen struct {
	sq   *sqids.Sqids
	next uint64
}

func NewKeywordGen(seed uint64, minLength uint8) (*KeywordGen, error) {
	sq, err := sqids.New(sqids.Options{
		Alphabet:  keywordAlphabet,
		MinLength: minLength,
	})
	if err != nil {
		return nil, fmt.Errorf("sqids init: %w", err)
	}
	return &KeywordGen{sq: sq, next: seed}, nil
}

// Next 非并发安全，导入是串行的。
func (g *KeywordGen) Next() (string, error) {
	id := g.next
	g.next++
	return g.sq.Encode([]uint64{id})
}
