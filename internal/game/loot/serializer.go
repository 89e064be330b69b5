package loot

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Wire sizes of the loot payload.
const (
	headerSize = 4 + 1
	itemSize   = 1 + 5*4 + 1
)

// ErrShortPayload is returned when a payload ends before its declared items.
var ErrShortPayload = errors.New("loot payload truncated")

// Encoder writes a viewer's loot window.
type Encoder struct {
	catalog    Catalog
	groups     Groups
	compositor *Compositor
}

// Encode projects s for v under perm:
//
//	u32 currency | u8 count | count x (u8 slot | u32 item | u32 count | u32 display | u32 suffix | u32 property | u8 slot type)
//
// All integers are little-endian. Quest items the viewer no longer needs and
// must not see are marked looted instead of written.
//
// Precondition: the viewer's subset should already be computed; subsets are not computed here.
func (e *Encoder) Encode(s *Session, v Viewer, perm Permission) []byte {
	buf := make([]byte, 0, headerSize+itemSize*(len(s.Items)+len(s.QuestItems)))
	if perm == PermissionNone {
		buf = binary.LittleEndian.AppendUint32(buf, 0)
		return append(buf, 0)
	}

	buf = binary.LittleEndian.AppendUint32(buf, s.Currency)
	countPos := len(buf)
	buf = append(buf, 0)
	shown := 0

	emit := func(slot uint8, it *Item, st SlotType) {
		buf = append(buf, slot)
		buf = e.appendItem(buf, it)
		buf = append(buf, byte(st))
		shown++
	}

	e.encodePool(s, v, perm, emit)

	view, ok := s.views[v.ID()]
	if ok {
		for j := range view.Quest {
			qe := &view.Quest[j]
			it := s.QuestItems[qe.Index]
			if qe.Looted || it.Looted {
				continue
			}
			slot := uint8(len(s.Items) + j)
			needed, show := v.HasQuestForItem(it.ItemID)
			switch {
			case needed:
				emit(slot, it, subsetSlot(perm, it.FollowsLootRules, it.Blocked, it.FreeForAll))
			case show:
				emit(slot, it, unneededQuestSlot(perm))
			default:
				qe.Looted = true
				if !it.FreeForAll {
					it.Looted = true
				}
			}
		}
		for _, fe := range view.FreeForAll {
			it := s.Items[fe.Index]
			if !fe.Looted && !it.Looted {
				emit(fe.Index, it, SlotAllowLoot)
			}
		}
		for _, ce := range view.Conditional {
			it := s.Items[ce.Index]
			if !ce.Looted && !it.Looted {
				emit(ce.Index, it, subsetSlot(perm, it.FollowsLootRules, it.Blocked, it.FreeForAll))
			}
		}
	}

	buf[countPos] = byte(shown)
	return buf
}

func (e *Encoder) encodePool(s *Session, v Viewer, perm Permission, emit func(uint8, *Item, SlotType)) {
	g, inGroup := e.groups.GroupOf(v.ID())
	master := inGroup && g.MasterLooter == v.ID()
	grouped := perm == PermissionGroup || perm == PermissionMaster || perm == PermissionRestricted

	for i, it := range s.Items {
		if it.Looted || it.FreeForAll {
			continue
		}
		if len(it.Conditions) > 0 && !(grouped && master) {
			continue
		}
		if !e.compositor.Eligible(s, it, v) {
			continue
		}
		st := poolState{
			Blocked:        it.Blocked,
			HasWinner:      it.RollWinner != 0,
			IsWinner:       it.RollWinner == v.ID(),
			HasRoundRobin:  s.RoundRobin != 0,
			IsRoundRobin:   s.RoundRobin == v.ID(),
			UnderThreshold: it.UnderThreshold,
			InGroup:        inGroup,
			IsMaster:       master,
		}
		if slot, show := poolSlot(perm, st); show {
			emit(uint8(i), it, slot)
		}
	}
}

func (e *Encoder) appendItem(buf []byte, it *Item) []byte {
	var display uint32
	if proto, ok := e.catalog.Lookup(it.ItemID); ok {
		display = proto.DisplayID
	}
	buf = binary.LittleEndian.AppendUint32(buf, it.ItemID)
	buf = binary.LittleEndian.AppendUint32(buf, it.Count)
	buf = binary.LittleEndian.AppendUint32(buf, display)
	buf = binary.LittleEndian.AppendUint32(buf, it.RandomSuffix)
	return binary.LittleEndian.AppendUint32(buf, it.RandomProperty)
}

// ViewItem is one decoded window entry.
type ViewItem struct {
	Slot           uint8
	ItemID         uint32
	Count          uint32
	DisplayID      uint32
	RandomSuffix   uint32
	RandomProperty uint32
	SlotType       SlotType
}

// View is a decoded loot window.
type View struct {
	Currency uint32
	Items    []ViewItem
}

// DecodeView parses a payload written by Encoder.Encode.
func DecodeView(b []byte) (View, error) {
	if len(b) < headerSize {
		return View{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrShortPayload, headerSize, len(b))
	}
	v := View{Currency: binary.LittleEndian.Uint32(b)}
	n := int(b[4])
	b = b[headerSize:]
	if len(b) < n*itemSize {
		return View{}, fmt.Errorf("%w: %d items need %d bytes, got %d", ErrShortPayload, n, n*itemSize, len(b))
	}
	v.Items = make([]ViewItem, n)
	for i := range v.Items {
		rec := b[i*itemSize : (i+1)*itemSize]
		v.Items[i] = ViewItem{
			Slot:           rec[0],
			ItemID:         binary.LittleEndian.Uint32(rec[1:]),
			Count:          binary.LittleEndian.Uint32(rec[5:]),
			DisplayID:      binary.LittleEndian.Uint32(rec[9:]),
			RandomSuffix:   binary.LittleEndian.Uint32(rec[13:]),
			RandomProperty: binary.LittleEndian.Uint32(rec[17:]),
			SlotType:       SlotType(rec[21]),
		}
	}
	return v, nil
}
