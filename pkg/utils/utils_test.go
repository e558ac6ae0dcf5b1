package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenUniqIDStr(t *testing.T) {
	id := GenUniqIDStr()
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, GenUniqIDStr())
}

func TestMD5IsStable(t *testing.T) {
	assert.Equal(t, MD5("doc1:0"), MD5("doc1:0"))
	assert.NotEqual(t, MD5("doc1:0"), MD5("doc1:1"))
}

func TestWhatLang(t *testing.T) {
	assert.Equal(t, "English", WhatLang("How many days of annual leave do I get?"))
	assert.Equal(t, "Mandarin", WhatLang("我每年有多少天年假？"))
}
