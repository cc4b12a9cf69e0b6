// Package fdm provides a client for the Belgian fiscal data module (FDM, "blackbox").
// The module signs every ticket of a certified point of sale and returns its
// counters, production number and signature.
//
// The package separates the request/response protocol (Client) from the way
// bytes reach the device (Transport):
//   - SerialTransport talks to a module attached to a COM port using
//     STX/length/data/ETX/LRC frames
//   - IoTTransport goes through an IoT box: the action is posted once and the
//     answer is awaited on the long-polling event route
//   - WebsocketTransport uses the IoT box websocket event channel
//   - FakeDevice simulates a module in memory
//
// Every transport returns exactly one response per request. The IoT transports
// correlate the response with a fresh session id and skip unrelated events.
//
// Example Usage:
//
//	client := fdm.New(fdm.Config{Timeout: 30 * time.Second}, fdm.NewSerialTransport(fdm.SerialConfig{
//	    PortName: "/dev/ttyUSB0",
//	}))
//	defer client.Close()
//
//	signed, err := client.RegisterReceipt(ctx, record)
//	if fdm.IsPinRequired(err) {
//	    err = client.SubmitPin(ctx, pin)
//	}
package fdm
