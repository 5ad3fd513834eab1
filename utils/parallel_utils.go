package utils

import (
	"fmt"
	"runtime"
)

// MailBox moves messages between NP participants (goroutines, patches) in
// bulk-synchronous phases: Post, Deliver, (sync), Receive, Clear.
type MailBox[T any] struct {
	NP           int
	MessageChans []chan *DynBuffer[T]    // One for each participant
	PostMsgQs    []map[int]*DynBuffer[T] // One for each participant, key is target
	ReceiveMsgQs []*DynBuffer[T]         // One for each participant
	MailFlag     []bool                  // Participant has messages in outbox
}

func NewMailBox[T any](NP int) *MailBox[T] {
	mb := &MailBox[T]{
		NP:           NP,
		MessageChans: make([]chan *DynBuffer[T], NP),
		PostMsgQs:    make([]map[int]*DynBuffer[T], NP),
		ReceiveMsgQs: make([]*DynBuffer[T], NP),
		MailFlag:     make([]bool, NP),
	}
	for n := 0; n < NP; n++ {
		mb.MessageChans[n] = make(chan *DynBuffer[T], NP) // Worst case is all-to-all
		mb.PostMsgQs[n] = make(map[int]*DynBuffer[T])
		mb.ReceiveMsgQs[n] = NewDynBuffer[T](0)
	}
	return mb
}

func (mb *MailBox[T]) PostMessage(me, target int, msg T) {
	if target < 0 || target > mb.NP-1 {
		panic(fmt.Sprintf("target %d out of bounds [0,%d)", target, mb.NP))
	}
	tgt, exists := mb.PostMsgQs[me][target]
	if !exists {
		tgt = NewDynBuffer[T](0)
		mb.PostMsgQs[me][target] = tgt
	}
	tgt.Add(msg)
	mb.MailFlag[me] = true
}

func (mb *MailBox[T]) DeliverMyMessages(me int) {
	if !mb.MailFlag[me] {
		return
	}
	for target, msgBuffer := range mb.PostMsgQs[me] {
		if msgBuffer.Len() == 0 {
			continue
		}
		mb.MessageChans[target] <- msgBuffer
	}
	mb.MailFlag[me] = false
}

// ReceiveMyMessages drains everything delivered to me so far. It must be
// called after all senders have delivered (a WaitGroup barrier in practice).
func (mb *MailBox[T]) ReceiveMyMessages(me int) (msgs []T) {
	for {
		select {
		case msgBuffer := <-mb.MessageChans[me]:
			for _, msg := range msgBuffer.Cells() {
				mb.ReceiveMsgQs[me].Add(msg)
			}
			msgBuffer.Reset() // Reset the originating buffer
		default:
			return mb.ReceiveMsgQs[me].Cells()
		}
	}
}

func (mb *MailBox[T]) ClearMyMessages(me int) {
	mb.ReceiveMsgQs[me].Reset()
}

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// ParallelDegreeFor mirrors the sizing rule of the solvers: zero means one
// goroutine per CPU, and never more goroutines than items.
func ParallelDegreeFor(ProcLimit, maxIndex int) (NP int) {
	if ProcLimit > 0 {
		NP = ProcLimit
	} else {
		NP = runtime.NumCPU()
	}
	if NP > maxIndex {
		NP = maxIndex
	}
	if NP < 1 {
		NP = 1
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// Splits one dimension into ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
