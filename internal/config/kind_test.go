package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	k, ok := KindOf(PICCompare)
	assert.True(t, ok)
	merge, _ := KindOf(PICMerge)
	assert.Equal(t, k, merge, "0x05 and 0x25 share rules")

	_, ok = KindOf(0x01)
	assert.False(t, ok)
	assert.Len(t, kindByPIC, 14)
	assert.Len(t, kindNames, 13)
}

func TestKindFamilies(t *testing.T) {
	for k := KindAxonAvgPool; k <= KindRouter; k++ {
		families := 0
		for _, in := range []bool{k.IsAxon(), k.IsSoma(), k == KindRouter} {
			if in {
				families++
			}
		}
		assert.Equal(t, 1, families, k.String())
	}
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestSlotAccepts(t *testing.T) {
	assert.True(t, SlotAxon.Accepts(KindAxonConv))
	assert.False(t, SlotAxon.Accepts(KindSomaMove))
	assert.True(t, SlotSoma1.Accepts(KindSomaLIF))
	assert.True(t, SlotSoma2.Accepts(KindSomaMoveSplit))
	assert.False(t, SlotSoma2.Accepts(KindRouter))
	assert.True(t, SlotRouter.Accepts(KindRouter))
	assert.False(t, SlotRouter.Accepts(KindAxonMLP))
	assert.False(t, Slot("x").Accepts(KindRouter))
}

func TestPrimGroupCase(t *testing.T) {
	a, s := &PrimitiveCase{PIC: PICMLP}, &PrimitiveCase{PIC: PICMove}
	g := &PrimGroup{Axon: a, Soma2: s}
	assert.Same(t, a, g.Case(SlotAxon))
	assert.Same(t, s, g.Case(SlotSoma2))
	assert.Nil(t, g.Case(SlotSoma1))
	assert.Nil(t, g.Case(Slot("x")))
}
