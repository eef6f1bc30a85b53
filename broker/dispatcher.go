// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"log/slog"
	"time"

	"github.com/courierq/courier/protocol"
	"github.com/courierq/courier/protocol/codec"
)

// Dispatcher routes decoded requests to their handlers and encodes the
// responses. It holds no broker state itself and is stateless with
// respect to the transport; the session layer calls Dispatch once per
// decoded request.
type Dispatcher struct {
	listQueues ListQueuesHandler
	checkQueue CheckQueueHandler
	create     CreateQueueHandler
	delete     DeleteQueueHandler
	getProps   GetPropertiesHandler
	publish    PublishHandler
	subscribe  SubscribeHandler
	receive    ReceiveHandler
	breakdown  TopicBreakdownHandler

	subs    *SubscriptionManager
	logger  *slog.Logger
	metrics Metrics
}

// NewDispatcher wires the handler set over the shared store, router and
// subscription manager.
func NewDispatcher(store *QueueStore, router *Router, subs *SubscriptionManager, logger *slog.Logger, metrics Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	return &Dispatcher{
		listQueues: ListQueuesHandler{store: store, subs: subs},
		checkQueue: CheckQueueHandler{store: store},
		create:     CreateQueueHandler{store: store},
		delete:     DeleteQueueHandler{store: store},
		getProps:   GetPropertiesHandler{store: store},
		publish:    PublishHandler{router: router},
		subscribe:  SubscribeHandler{subs: subs},
		receive:    ReceiveHandler{subs: subs, router: router},
		breakdown:  TopicBreakdownHandler{store: store},
		subs:       subs,
		logger:     logger,
		metrics:    metrics,
	}
}

// Dispatch executes one request for one client and returns the encoded
// response. A handler fault, including a panic, degrades to
// protocol.ErrRequestHandling for this response only; it never takes the
// connection down.
func (d *Dispatcher) Dispatch(request protocol.Request, client protocol.ClientID) (out []byte, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic",
				slog.String("request", request.Kind().String()),
				slog.Any("panic", r))
			out, err = nil, protocol.ErrRequestHandling
		}
		d.metrics.RequestHandled(request.Kind().String(), time.Since(start))
	}()

	switch req := request.(type) {
	case protocol.ListQueues:
		infos, err := d.listQueues.Handle(req, client)
		return encodeOr(codec.EncodeQueueInfoList(infos), err)
	case protocol.CheckQueue:
		status, err := d.checkQueue.Handle(req, client)
		return encodeOr(codec.EncodeStatus(status), err)
	case protocol.CreateQueue:
		status, err := d.create.Handle(req, client)
		return encodeOr(codec.EncodeStatus(status), err)
	case protocol.DeleteQueue:
		status, err := d.delete.Handle(req, client)
		return encodeOr(codec.EncodeStatus(status), err)
	case protocol.GetProperties:
		props, err := d.getProps.Handle(req, client)
		return encodeOr(codec.EncodePropertiesResponse(props), err)
	case protocol.Publish:
		status, err := d.publish.Handle(req, client)
		return encodeOr(codec.EncodeStatus(status), err)
	case protocol.Subscribe:
		status, err := d.subscribe.Handle(req, client)
		return encodeOr(codec.EncodeStatus(status), err)
	case protocol.Receive:
		resp, err := d.receive.Handle(req, client)
		return encodeOr(codec.EncodeReceiveResponse(resp), err)
	case protocol.GetTopicBreakdown:
		resp, err := d.breakdown.Handle(req, client)
		return encodeOr(codec.EncodeTopicBreakdown(resp), err)
	default:
		return nil, protocol.ErrDecode
	}
}

// Disconnect releases everything the broker tracks for a client. The
// session layer calls it when the connection closes for any reason.
func (d *Dispatcher) Disconnect(client protocol.ClientID) {
	d.subs.Disconnect(client)
}

func encodeOr(encoded []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, protocol.ErrRequestHandling
	}
	return encoded, nil
}
