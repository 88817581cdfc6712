package contract

import (
	"crypto/x509"
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Test principals. Full client identity strings the way Fabric reports them.
const (
	principalAlice = "x509::CN=alice::OU=client::O=Org1MSP"
	principalBob   = "x509::CN=bob::OU=client::O=Org1MSP"
	principalCarol = "x509::CN=carol::OU=client::O=Org2MSP"
)

var testTxTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const compositeKeyNamespace = "\x00"

// fakeStub is an in-memory world state implementing the subset of
// shim.ChaincodeStubInterface the contract touches. Unused methods panic via
// the embedded nil interface.
type fakeStub struct {
	shim.ChaincodeStubInterface
	state  map[string][]byte
	events []fakeEvent
	txTime time.Time
}

type fakeEvent struct {
	name    string
	payload []byte
}

func newFakeStub() *fakeStub {
	return &fakeStub{
		state:  make(map[string][]byte),
		txTime: testTxTime,
	}
}

func (s *fakeStub) GetState(key string) ([]byte, error) {
	value, ok := s.state[key]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

func (s *fakeStub) PutState(key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.state[key] = cp
	return nil
}

func (s *fakeStub) DelState(key string) error {
	delete(s.state, key)
	return nil
}

func (s *fakeStub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	key := compositeKeyNamespace + objectType + compositeKeyNamespace
	for _, attr := range attributes {
		key += attr + compositeKeyNamespace
	}
	return key, nil
}

func (s *fakeStub) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	return timestamppb.New(s.txTime), nil
}

func (s *fakeStub) SetEvent(name string, payload []byte) error {
	s.events = append(s.events, fakeEvent{name: name, payload: payload})
	return nil
}

func (s *fakeStub) GetStateByPartialCompositeKeyWithPagination(objectType string, keys []string, pageSize int32, bookmark string) (shim.StateQueryIteratorInterface, *pb.QueryResponseMetadata, error) {
	prefix, _ := s.CreateCompositeKey(objectType, keys)
	matching := []string{}
	for key := range s.state {
		if strings.HasPrefix(key, prefix) {
			matching = append(matching, key)
		}
	}
	sort.Strings(matching)

	start := 0
	if bookmark != "" {
		for i, key := range matching {
			if key >= bookmark {
				start = i
				break
			}
		}
	}

	page := []*queryresult.KV{}
	nextBookmark := ""
	for i := start; i < len(matching); i++ {
		if int32(len(page)) >= pageSize {
			nextBookmark = matching[i]
			break
		}
		page = append(page, &queryresult.KV{Key: matching[i], Value: s.state[matching[i]]})
	}

	iter := &fakeIterator{kvs: page}
	meta := &pb.QueryResponseMetadata{
		Bookmark:            nextBookmark,
		FetchedRecordsCount: int32(len(page)),
	}
	return iter, meta, nil
}

type fakeIterator struct {
	kvs []*queryresult.KV
	pos int
}

func (it *fakeIterator) HasNext() bool {
	return it.pos < len(it.kvs)
}

func (it *fakeIterator) Next() (*queryresult.KV, error) {
	kv := it.kvs[it.pos]
	it.pos++
	return kv, nil
}

func (it *fakeIterator) Close() error { return nil }

// fakeClientIdentity satisfies cid.ClientIdentity for a fixed principal.
type fakeClientIdentity struct {
	id  string
	msp string
}

var _ cid.ClientIdentity = (*fakeClientIdentity)(nil)

func (f *fakeClientIdentity) GetID() (string, error)    { return f.id, nil }
func (f *fakeClientIdentity) GetMSPID() (string, error) { return f.msp, nil }
func (f *fakeClientIdentity) GetX509Certificate() (*x509.Certificate, error) {
	return nil, nil
}
func (f *fakeClientIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeClientIdentity) AssertAttributeValue(string, string) error { return nil }

// newTestContext wires a fake stub and client identity into a real
// contractapi transaction context, so the contract code under test runs
// exactly as it would on a peer.
func newTestContext(stub *fakeStub, principal string) *contractapi.TransactionContext {
	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(stub)
	ctx.SetClientIdentity(&fakeClientIdentity{id: principal, msp: "Org1MSP"})
	return ctx
}

// --- Argument builders ---

func profileJSON(t *testing.T, name, bio string, socialLinks ...string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"name":        name,
		"bio":         bio,
		"avatarUrl":   "https://img.example/" + name + ".png",
		"bannerUrl":   "https://img.example/" + name + "-banner.png",
		"socialLinks": socialLinks,
	})
	require.NoError(t, err)
	return string(raw)
}

func projectJSON(t *testing.T, name, linkDemo, description string, tags ...string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"name":        name,
		"linkDemo":    linkDemo,
		"description": description,
		"tags":        tags,
	})
	require.NoError(t, err)
	return string(raw)
}

func certificateJSON(t *testing.T, title, issuer string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"title":          title,
		"issuer":         issuer,
		"issueDate":      "2025-01-15",
		"certificateUrl": "https://certs.example/" + title,
		"description":    "issued for " + title,
		"credentialId":   "CRED-" + title,
	})
	require.NoError(t, err)
	return string(raw)
}

// lastEvent returns the most recent chaincode event, decoded.
func lastEvent(t *testing.T, stub *fakeStub) (string, map[string]interface{}) {
	t.Helper()
	require.NotEmpty(t, stub.events, "expected at least one chaincode event")
	evt := stub.events[len(stub.events)-1]
	payload := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(evt.payload, &payload))
	return evt.name, payload
}

// rawProfileState returns the stored profile document bytes for
// byte-for-byte unchanged assertions.
func rawProfileState(t *testing.T, s *ProfileSmartContract, stub *fakeStub, profileID string) []byte {
	t.Helper()
	ctx := newTestContext(stub, principalAlice)
	key, err := s.createProfileCompositeKey(ctx, profileID)
	require.NoError(t, err)
	raw, err := stub.GetState(key)
	require.NoError(t, err)
	return raw
}
