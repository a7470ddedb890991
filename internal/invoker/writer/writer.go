// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/mia-platform/erpsync/internal/invoker"
)

var _ invoker.Invoker = &writerInvoker{}

type writerInvoker struct {
	writer io.Writer

	lock sync.Mutex
}

func NewInvoker(w io.Writer) invoker.Invoker {
	return &writerInvoker{
		writer: w,
	}
}

func (i *writerInvoker) Sync(_ context.Context, connectorID, target string, limit int) (*invoker.Result, error) {
	body, err := json.Marshal(invoker.SyncRequest{Limit: limit})
	if err != nil {
		return nil, err
	}

	builder := new(strings.Builder)
	builder.WriteString("Sync request:\n")
	builder.WriteString("\tConnector: " + connectorID + "\n")
	builder.WriteString("\tTarget: " + target + "\n")
	builder.WriteString("\tBody: " + string(body) + "\n")
	builder.WriteString("\n")

	i.lock.Lock()
	defer i.lock.Unlock()
	fmt.Fprint(i.writer, builder.String())
	return &invoker.Result{StatusCode: http.StatusOK}, nil
}
